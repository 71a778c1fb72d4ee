package i18n

const (
	KeyTitle            = "title"
	KeySubtitle         = "subtitle"
	KeySidebarHeader    = "sidebar_header"
	KeyPrefecture       = "prefecture"
	KeyDrainageClass    = "drainage_class"
	KeyStrawRemoval     = "straw_removal"
	KeyCalc             = "calc"
	KeySelectArea       = "select_area"
	KeyNoSelection      = "no_selection"
	KeyLoadingMap       = "loading_map_text"
	KeyNoMapDataWarning = "no_map_data_warning"
	KeyBaseline         = "baseline"
	KeyProject          = "project"
	KeyReduction        = "reduction"

	KeyErrInvalidInput          = "error.invalid_input"
	KeyErrUnsupportedPrefecture = "error.unsupported_prefecture"
	KeyErrMissingCoefficient    = "error.missing_coefficient"
	KeyErrSessionNotFound       = "error.session_not_found"
	KeyErrCellNotFound          = "error.cell_not_found"
	KeyErrGridUnavailable       = "error.grid_unavailable"
	KeyErrNotFound              = "error.not_found"
	KeyErrInternal              = "error.internal"
)

var catalog = map[Lang]map[string]string{
	Japanese: {
		KeyTitle:            "🌾 水田 CH₄ 排出簡易シミュレーション",
		KeySubtitle:         "中干し延長によるポテンシャル削減効果の試算",
		KeySidebarHeader:    "入力パラメータ",
		KeyPrefecture:       "都道府県",
		KeyDrainageClass:    "排水性クラス",
		KeyStrawRemoval:     "稲わら持ち出し量 (kg/10a)",
		KeyCalc:             "計算する",
		KeySelectArea:       "選択水田面積",
		KeyNoSelection:      "ポリゴンをクリックして面積を選択してください",
		KeyLoadingMap:       "地図を読み込んでいます...",
		KeyNoMapDataWarning: "{pref_name} には表示可能な水田データがありません。",
		KeyBaseline:         "ベースライン (t-CO₂)",
		KeyProject:          "プロジェクト (t-CO₂)",
		KeyReduction:        "削減量 (t-CO₂)",

		KeyErrInvalidInput:          "入力値が不正です: {detail}",
		KeyErrUnsupportedPrefecture: "対応していない都道府県です: {detail}",
		KeyErrMissingCoefficient:    "排出係数が定義されていません: {detail}",
		KeyErrSessionNotFound:       "セッションが見つかりません",
		KeyErrCellNotFound:          "指定した地点に水田グリッドがありません",
		KeyErrGridUnavailable:       "水田グリッドデータが読み込まれていません",
		KeyErrNotFound:              "見つかりません",
		KeyErrInternal:              "内部エラーが発生しました",
	},
	English: {
		KeyTitle:            "🌾 Simplified Rice Paddy CH₄ Emission Simulation",
		KeySubtitle:         "Estimating Potential Reduction Effects from Extended Mid-season Drainage",
		KeySidebarHeader:    "Input Parameters",
		KeyPrefecture:       "Prefecture",
		KeyDrainageClass:    "Drainage Class",
		KeyStrawRemoval:     "Straw Removal (kg/10a)",
		KeyCalc:             "Calculate",
		KeySelectArea:       "Selected Rice Paddy Area",
		KeyNoSelection:      "Click a polygon to select area",
		KeyLoadingMap:       "Loading map...",
		KeyNoMapDataWarning: "No rice paddy data available for {pref_name}.",
		KeyBaseline:         "Baseline (t-CO₂)",
		KeyProject:          "Project (t-CO₂)",
		KeyReduction:        "Reduction (t-CO₂)",

		KeyErrInvalidInput:          "Invalid input: {detail}",
		KeyErrUnsupportedPrefecture: "Unsupported prefecture: {detail}",
		KeyErrMissingCoefficient:    "No emission coefficient defined: {detail}",
		KeyErrSessionNotFound:       "Session not found",
		KeyErrCellNotFound:          "No paddy grid cell at that location",
		KeyErrGridUnavailable:       "Paddy grid data is not loaded",
		KeyErrNotFound:              "Not found",
		KeyErrInternal:              "Internal error",
	},
}
