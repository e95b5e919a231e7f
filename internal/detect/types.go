package detect

// DriverInfo describes one driver package available for the system.
//
// Packages found through modaliases carry Modalias and SysPath; packages
// from detect plugins carry Plugin instead.
type DriverInfo struct {
	Modalias    string  `json:"modalias,omitempty"`
	SysPath     string  `json:"syspath,omitempty"`
	Plugin      string  `json:"plugin,omitempty"`
	Free        bool    `json:"free"`
	FromDistro  bool    `json:"from_distro"`
	Vendor      *string `json:"vendor,omitempty"`
	Model       *string `json:"model,omitempty"`
	Recommended *bool   `json:"recommended,omitempty"`
}

// Device groups the driver packages that make one device work. Installing
// any one of Drivers is enough.
type Device struct {
	Modalias      string             `json:"modalias,omitempty"`
	Vendor        *string            `json:"vendor,omitempty"`
	Model         *string            `json:"model,omitempty"`
	Drivers       map[string]*Driver `json:"drivers"`
	ManualInstall bool               `json:"manual_install,omitempty"`
}

// Driver is a driver package entry of a Device.
type Driver struct {
	Free        bool  `json:"free"`
	FromDistro  bool  `json:"from_distro"`
	Recommended *bool `json:"recommended,omitempty"`

	// Builtin drivers ship with the OS and must not be uninstalled.
	Builtin bool `json:"builtin,omitempty"`
}

func boolPtr(b bool) *bool { return &b }

func stringPtr(s string) *string { return &s }
