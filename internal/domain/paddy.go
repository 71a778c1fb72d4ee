package domain

// PaddyCell is one cell of the paddy-area raster.
type PaddyCell struct {
	UID    string  `json:"uid" db:"uid"`
	Lat    float64 `json:"lat" db:"lat"`
	Lon    float64 `json:"lon" db:"lon"`
	DLat   float64 `json:"dlat" db:"dlat"`
	DLon   float64 `json:"dlon" db:"dlon"`
	AreaHa float64 `json:"area_ha" db:"area_ha"`
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
