package machine

// State is the process level stage of the launcher.
type State int32

const (
	StateIdle State = iota
	StateDetecting
	StateFetchingInfo
	StateDownloading
	StateExtracting
	StateConfiguring
	StateRunning
	StateCleaningUp
	StateTerminated
)

var stateNames = [...]string{
	StateIdle:         "Idle",
	StateDetecting:    "Detecting",
	StateFetchingInfo: "FetchingInfo",
	StateDownloading:  "Downloading",
	StateExtracting:   "Extracting",
	StateConfiguring:  "Configuring",
	StateRunning:      "Running",
	StateCleaningUp:   "CleaningUp",
	StateTerminated:   "Terminated",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}
