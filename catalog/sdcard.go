package catalog

// SDPins are the SPI lines of the media card slot.
type SDPins struct {
	SCK int
	SDO int
	SDI int
	CS  int
}
