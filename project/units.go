package project

// UnitOptions lists the measurement units offered for devis lines and
// table columns.
var UnitOptions = []string{
	"u",
	"ml",
	"m²",
	"m³",
	"kg",
	"t",
	"l",
	"h",
	"j",
	"ens",
	"ff",
}
