// Package artifactstest provides a small but complete artifact set for
// tests: two attractions, a tree model keyed on the peak-hour flag and all
// six aggregate tables.
package artifactstest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/FairForge/parkbeat/internal/artifacts"
	"github.com/FairForge/parkbeat/internal/history"
	"github.com/FairForge/parkbeat/internal/model"
)

// Attraction and zone names used by the fixture.
const (
	Batman      = "Batman Gotham City Escape"
	BatmanZone  = "DC Super Heroes World"
	Coaster     = "Coaster Express"
	CoasterZone = "Norte"
)

// Model predictions: the single tree splits on es_hora_pico.
const (
	OffPeakPrediction = 10.0
	PeakPrediction    = 20.5
)

// Bucket the files are written under.
const Bucket = "parklytics-models"

// Columns is the scaler's declared order. It mixes candidate features with
// columns only the name-pattern fallback can fill.
var Columns = []string{
	"hora", "hora_int", "mes", "dia_semana_num", "es_fin_de_semana", "es_festivo", "es_puente",
	"temporada", "temperatura", "humedad", "codigo_clima", "zona_enc", "atraccion_enc",
	"hora_sin", "hora_cos", "es_hora_apertura", "es_hora_pico", "es_hora_valle",
	"hora_pico_puente", "count_hora", "p75_hora", "median_mes_hora", "std_mes", "p95_mes",
	"count_hora_dia", "es_lunes", "es_sabado", "es_mes_10", "is_batman_octubre",
	"is_octubre_fin_semana", "atraccion_freq", "hora_hist", "tiempo_espera_hist",
	"rolling_mean_3", "lag_1",
}

const modelJSON = `{
  "base_score": 0.5,
  "objective": "reg:squarederror",
  "trees": [
    {"nodeid": 0, "depth": 0, "split": "es_hora_pico", "split_condition": 0.5,
     "yes": 1, "no": 2, "missing": 1,
     "children": [{"nodeid": 1, "leaf": 9.5}, {"nodeid": 2, "leaf": 20.0}]}
  ]
}`

const encodingsJSON = `{
  "atraccion": {"Batman Gotham City Escape": 14.0, "Coaster Express": 18.0},
  "zona": {"DC Super Heroes World": 12.0, "Norte": 16.0}
}`

// SampleCSV is the reference sample. Batman has a thin October Saturday
// noon history; Coaster has September Tuesday and July Saturday rows.
const SampleCSV = `tiempo_espera,atraccion,zona,mes,hora,dia_semana_num
5,Batman Gotham City Escape,DC Super Heroes World,10,12.0,5
8,Batman Gotham City Escape,DC Super Heroes World,10,12.25,5
10,Batman Gotham City Escape,DC Super Heroes World,10,12.5,5
12,Batman Gotham City Escape,DC Super Heroes World,10,12.75,5
12,Batman Gotham City Escape,DC Super Heroes World,10,12.0,5
30,Batman Gotham City Escape,DC Super Heroes World,10,15.0,6
40,Batman Gotham City Escape,DC Super Heroes World,10,15.5,6
6,Coaster Express,Norte,9,8.0,1
8,Coaster Express,Norte,9,8.25,1
10,Coaster Express,Norte,9,8.5,1
12,Coaster Express,Norte,9,8.75,1
14,Coaster Express,Norte,9,8.0,1
15,Coaster Express,Norte,9,10.0,1
18,Coaster Express,Norte,9,10.5,1
20,Coaster Express,Norte,9,10.25,1
20,Coaster Express,Norte,9,12.0,1
25,Coaster Express,Norte,9,12.5,1
30,Coaster Express,Norte,9,12.25,1
35,Coaster Express,Norte,9,12.75,1
40,Coaster Express,Norte,9,12.0,1
45,Coaster Express,Norte,7,13.0,5
50,Coaster Express,Norte,7,13.5,5
`

// TableCSV holds the six aggregate tables by granularity.
var TableCSV = map[history.Granularity]string{
	history.ByMonth: `atraccion,mes,count_mes,mean_mes,median_mes,std_mes,p75_mes,p90_mes,p95_mes
Batman Gotham City Escape,10,7,16.71,12,13.1,21,34,37
Coaster Express,9,13,19.85,18,10.6,25,34,37.6
Coaster Express,7,2,47.5,47.5,3.54,48.75,49.5,49.75
`,
	history.ByHour: `atraccion,hora,count_hora,mean_hora,median_hora,std_hora,p75_hora,p90_hora
Batman Gotham City Escape,12,5,9.4,10,2.97,12,12
Batman Gotham City Escape,15,2,35,35,7.07,37.5,39
Coaster Express,8,5,10,10,3.16,12,13.2
Coaster Express,10,3,17.67,18,2.52,19,19.6
Coaster Express,12,5,30,30,7.91,35,38
Coaster Express,13,2,47.5,47.5,3.54,48.75,49.5
`,
	history.ByWeekday: `atraccion,dia_semana_num,count_dia,mean_dia,median_dia,std_dia,p75_dia,p90_dia
Batman Gotham City Escape,5,5,9.4,10,2.97,12,12
Batman Gotham City Escape,6,2,35,35,7.07,37.5,39
Coaster Express,1,13,19.85,18,10.6,25,34
Coaster Express,5,2,47.5,47.5,3.54,48.75,49.5
`,
	history.ByMonthWeekday: `atraccion,mes,dia_semana_num,count_mes_dia,mean_mes_dia,median_mes_dia,p75_mes_dia,p90_mes_dia
Batman Gotham City Escape,10,5,5,9.4,10,12,12
Batman Gotham City Escape,10,6,2,35,35,37.5,39
Coaster Express,9,1,13,19.85,18,25,34
Coaster Express,7,5,2,47.5,47.5,48.75,49.5
`,
	history.ByHourWeekday: `atraccion,hora,dia_semana_num,count_hora_dia,mean_hora_dia,median_hora_dia,p75_hora_dia
Coaster Express,8,1,5,10,10,12
Coaster Express,10,1,3,17.67,18,19
Coaster Express,12,1,5,30,30,35
Coaster Express,13,5,2,47.5,47.5,48.75
`,
	history.ByMonthHour: `atraccion,mes,hora,count_mes_hora,mean_mes_hora,median_mes_hora,p75_mes_hora
Coaster Express,9,8,5,10,10,12
Coaster Express,9,12,5,30,30,35
Coaster Express,7,13,2,47.5,47.5,48.75
`,
}

// Keys returns the object keys WriteFiles uses.
func Keys() artifacts.Keys {
	return artifacts.Keys{
		Model:           "models/xgb_model_professional.json",
		Scaler:          "models/xgb_scaler_professional.json",
		Encodings:       "models/xgb_encoding_professional.json",
		ReferenceSample: "models/df_processed.csv.gz",
		Tables: map[history.Granularity]string{
			history.ByMonth:        "historicos/hist_mes.csv",
			history.ByHour:         "historicos/hist_hora.csv",
			history.ByWeekday:      "historicos/hist_dia_semana.csv",
			history.ByMonthWeekday: "historicos/hist_mes_dia.csv",
			history.ByHourWeekday:  "historicos/hist_hora_dia.csv",
			history.ByMonthHour:    "historicos/hist_mes_hora.csv",
		},
	}
}

// ScalerJSON is an identity scaler over Columns.
func ScalerJSON(t testing.TB) []byte {
	t.Helper()
	mean := make([]float64, len(Columns))
	scale := make([]float64, len(Columns))
	for i := range scale {
		scale[i] = 1
	}
	data, err := json.Marshal(&model.StandardScaler{FeatureNames: Columns, Mean: mean, Scale: scale})
	require.NoError(t, err)
	return data
}

// Files returns every artifact body by key, the sample gzip-compressed.
func Files(t testing.TB) map[string][]byte {
	t.Helper()
	keys := Keys()

	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write([]byte(SampleCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	files := map[string][]byte{
		keys.Model:           []byte(modelJSON),
		keys.Scaler:          ScalerJSON(t),
		keys.Encodings:       []byte(encodingsJSON),
		keys.ReferenceSample: gz.Bytes(),
	}
	for g, body := range TableCSV {
		files[keys.Tables[g]] = []byte(body)
	}
	return files
}

// WriteFiles lays the artifact set out under dir/Bucket for a local driver.
func WriteFiles(t testing.TB, dir string) {
	t.Helper()
	for key, body := range Files(t) {
		path := filepath.Join(dir, Bucket, filepath.FromSlash(key))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, body, 0644))
	}
}

// Bundle decodes the fixture in memory, without a driver.
func Bundle(t testing.TB) *artifacts.Bundle {
	t.Helper()

	scaler := &model.StandardScaler{}
	require.NoError(t, json.Unmarshal(ScalerJSON(t), scaler))
	require.NoError(t, scaler.Validate())

	ensemble := &model.TreeEnsemble{}
	require.NoError(t, json.Unmarshal([]byte(modelJSON), ensemble))
	require.NoError(t, ensemble.Bind(scaler.ExpectedColumns()))

	encodings := model.EncodingMaps{}
	require.NoError(t, json.Unmarshal([]byte(encodingsJSON), &encodings))

	sample, err := history.ReadSampleCSV(strings.NewReader(SampleCSV))
	require.NoError(t, err)

	tables := history.Tables{}
	for g, body := range TableCSV {
		table, err := history.ReadTableCSV(g, strings.NewReader(body))
		require.NoError(t, err)
		tables[g] = table
	}

	return &artifacts.Bundle{
		Regressor: ensemble,
		Scaler:    scaler,
		Encodings: encodings,
		Sample:    sample,
		Tables:    tables,
		Resolver:  history.NewResolver(sample, tables),
	}
}
