package model

// Reading is one immutable sensor sample. The same flat JSON shape is used
// for the MQTT payload, the ledger transaction data and the offline buffer
// file.
type Reading struct {
	SensorID     string  `json:"sensor_id"`
	Timestamp    string  `json:"timestamp"` // ISO-8601, generation time
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	Location     string  `json:"location"`
	UnitTemp     string  `json:"unit_temp"`
	UnitHumidity string  `json:"unit_humidity"`
}
