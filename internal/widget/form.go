package widget

// Form holds the widget's form field values: the persisted text and, for
// point widgets, the longitude and latitude fields.
type Form struct {
	Text string
	Lon  string
	Lat  string
}

func (f *Form) clear() {
	f.Text, f.Lon, f.Lat = "", "", ""
}
