package state

var (
	seasonRecordPrefix     = []byte("seasons/season/")
	submissionRecordPrefix = []byte("seasons/submission/")
	balancePrefix          = []byte("seasons/balance/")
	buyerArtifactPrefix    = []byte("seasons/stats/buyer-artifact/")
	buyerSeasonPrefix      = []byte("seasons/stats/buyer-season/")
	topBuyerPrefix         = []byte("seasons/stats/top-buyer/")
	accountPrefix          = []byte("accounts/")

	configKeyBytes          = []byte("seasons/config")
	protocolAccruedKeyBytes = []byte("seasons/fees/accrued")
	seasonCounterKeyBytes   = []byte("seasons/counter/season")
	artifactCounterKeyBytes = []byte("seasons/counter/artifact")
)
