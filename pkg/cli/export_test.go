package cli

var (
	RunChat             = runChat
	PrintPlantList      = printPlantList
	PrintPlant          = printPlant
	PrintAnalysis       = printAnalysis
	PrintAudit          = printAudit
	ApplyIdentification = applyIdentification
	ReadImageFile       = readImageFile
)
