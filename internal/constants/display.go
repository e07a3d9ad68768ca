package constants

// Screen copy shown on the local character display.
const (
	DisplayHumidityHigh    = "Umidade:Alta"
	DisplayTemperatureHigh = "Temperatura:Alta"
	DisplayAlertLine1      = "ALERTA DE"
	DisplayAlertLine2      = "ENCHENTE !!!"
	DisplayHumidityOK      = "Umidade: OK"
	DisplayTemperatureOK   = "Temperatura: OK "
)

// Character display geometry.
const (
	DisplayColumns = 16
	DisplayRows    = 2
)
