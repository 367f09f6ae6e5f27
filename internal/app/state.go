package app

// AppState represents the different views/modes of the display.
type AppState int

const (
	Scanning AppState = iota
	Finished
	Exiting
)

// Job statuses shown in the job table.
const (
	StatusExtracting = "Extracting"
	StatusComplete   = "Complete"
	StatusFailed     = "Failed"
)
