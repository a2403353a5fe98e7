package common

const (
	// OpenBoxFileExt is the extension of the public-key file an importing
	// party publishes into the exchange location.
	OpenBoxFileExt = ".openbox"

	// SealedBoxFileExt is the extension of the encrypted vault file the
	// exporting party writes back.
	SealedBoxFileExt = ".sealedbox"
)
