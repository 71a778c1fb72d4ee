package domain

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Key     string `json:"key,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

type HealthResponse struct {
	Status          string `json:"status"`
	Prefectures     int    `json:"prefectures"`
	Grid            string `json:"grid"`
	GridPrefectures int    `json:"grid_prefectures"`
	Sessions        int    `json:"sessions"`
	Database        string `json:"database,omitempty"`
}
