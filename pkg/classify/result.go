package classify

// Output field names a rule may populate.
const (
	FieldDeviceManufacturer = "device_manufacturer"
	FieldDeviceModel        = "device_model"
	FieldDeviceSN           = "device_sn"
	FieldDeviceName         = "device_name"
	FieldDevicePort         = "device_port"
	FieldDeviceFW           = "device_fw"
	FieldDeviceLocation     = "device_location"
	FieldIPAddress          = "ip_address"
	FieldHBAManufacturer    = "hba_manufacturer"
	FieldHBAModel           = "hba_model"
	FieldHBADescription     = "hba_description"
	FieldHostName           = "host_name"
	FieldHostOS             = "host_os"
	FieldHBAFirmware        = "hba_firmware"
	FieldHBADriver          = "hba_driver"
)

// Fields lists every output field in report order.
func Fields() []string {
	return []string{
		FieldDeviceManufacturer, FieldDeviceModel, FieldDeviceSN, FieldDeviceName,
		FieldDevicePort, FieldDeviceFW, FieldDeviceLocation, FieldIPAddress,
		FieldHBAManufacturer, FieldHBAModel, FieldHBADescription, FieldHostName,
		FieldHostOS, FieldHBAFirmware, FieldHBADriver,
	}
}

// Result is the sparse classification of one symbolic-name pair. A nil field is unknown,
// which consumers must not confuse with an empty value.
type Result struct {
	DeviceManufacturer *string `json:"device_manufacturer,omitempty"`
	DeviceModel        *string `json:"device_model,omitempty"`
	DeviceSN           *string `json:"device_sn,omitempty"`
	DeviceName         *string `json:"device_name,omitempty"`
	DevicePort         *string `json:"device_port,omitempty"`
	DeviceFW           *string `json:"device_fw,omitempty"`
	DeviceLocation     *string `json:"device_location,omitempty"`
	IPAddress          *string `json:"ip_address,omitempty"`
	HBAManufacturer    *string `json:"hba_manufacturer,omitempty"`
	HBAModel           *string `json:"hba_model,omitempty"`
	HBADescription     *string `json:"hba_description,omitempty"`
	HostName           *string `json:"host_name,omitempty"`
	HostOS             *string `json:"host_os,omitempty"`
	HBAFirmware        *string `json:"hba_firmware,omitempty"`
	HBADriver          *string `json:"hba_driver,omitempty"`

	PortSymbUsed   bool `json:"port_symb_used"`
	PortSymbRuleID *int `json:"port_symb_rule_id,omitempty"`
	NodeSymbUsed   bool `json:"node_symb_used"`
	NodeSymbRuleID *int `json:"node_symb_rule_id,omitempty"`
}

// slot returns the storage for a named field, or nil for an unknown name.
func (r *Result) slot(name string) **string {
	switch name {
	case FieldDeviceManufacturer:
		return &r.DeviceManufacturer
	case FieldDeviceModel:
		return &r.DeviceModel
	case FieldDeviceSN:
		return &r.DeviceSN
	case FieldDeviceName:
		return &r.DeviceName
	case FieldDevicePort:
		return &r.DevicePort
	case FieldDeviceFW:
		return &r.DeviceFW
	case FieldDeviceLocation:
		return &r.DeviceLocation
	case FieldIPAddress:
		return &r.IPAddress
	case FieldHBAManufacturer:
		return &r.HBAManufacturer
	case FieldHBAModel:
		return &r.HBAModel
	case FieldHBADescription:
		return &r.HBADescription
	case FieldHostName:
		return &r.HostName
	case FieldHostOS:
		return &r.HostOS
	case FieldHBAFirmware:
		return &r.HBAFirmware
	case FieldHBADriver:
		return &r.HBADriver
	default:
		return nil
	}
}

// Get returns the value of a named field.
func (r *Result) Get(name string) (string, bool) {
	s := r.slot(name)
	if s == nil || *s == nil {
		return "", false
	}
	return **s, true
}

// Classified reports whether any rule matched.
func (r *Result) Classified() bool {
	return r.NodeSymbUsed || r.PortSymbUsed
}

func isKnownField(name string) bool {
	var r Result
	return r.slot(name) != nil
}
