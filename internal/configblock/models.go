package configblock

// modelNames maps product ids to module names. The table is sparse; look
// ups go through ModelName, which guards against unpopulated ids.
var modelNames = map[uint16]string{
	1:  "Colibri PXA270 312MHz",
	2:  "Colibri PXA270 520MHz",
	3:  "Colibri PXA320 806MHz",
	4:  "Colibri PXA300 208MHz",
	5:  "Colibri PXA310 624MHz",
	6:  "Colibri PXA320 806MHz IT",
	7:  "Colibri PXA300 208MHz XT",
	8:  "Colibri PXA270 312MHz",
	9:  "Colibri PXA270 520MHz",
	10: "Colibri VF50 128MB",
	11: "Colibri VF61 256MB",
	12: "Colibri VF61 256MB IT",
	13: "Colibri VF50 128MB IT",
	14: "Colibri iMX6 Solo 256MB",
	15: "Colibri iMX6 DualLite 512MB",
	16: "Colibri iMX6 Solo 256MB IT",
	17: "Colibri iMX6 DualLite 512MB IT",
	20: "Colibri T20 256MB",
	21: "Colibri T20 512MB",
	22: "Colibri T20 512MB IT",
	23: "Colibri T30 1GB",
	24: "Colibri T20 256MB IT",
	25: "Apalis T30 2GB",
	26: "Apalis T30 1GB",
	27: "Apalis iMX6 Quad 1GB",
	28: "Apalis iMX6 Quad 2GB IT",
	29: "Apalis iMX6 Dual 512MB",
	30: "Colibri T30 1GB IT",
	31: "Apalis T30 1GB IT",
}

// ModelName returns the human-readable module name for a product id. The
// second return value is false for ids the table does not cover.
func ModelName(prodid uint16) (string, bool) {
	name, ok := modelNames[prodid]
	return name, ok
}
