package constants

// Default identity of the node.
const (
	DefaultTopicPrefix = "/TEF"
	DefaultDeviceID    = "lamp109"
	DefaultClientID    = "fiware_109"
)

// Topic suffixes relative to <prefix>/<device_id>.
const (
	CommandTopicSuffix     = "cmd"
	StateTopicSuffix       = "attrs"
	HumidityTopicSuffix    = "attrs/u"
	TemperatureTopicSuffix = "attrs/t"
)
