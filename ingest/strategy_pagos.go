package ingest

import (
	"strings"

	"github.com/shopspring/decimal"
)

var pagosCaps = map[string]int{
	"nro_acuerdo":              20,
	"nro_comparendo":           50,
	"documento":                20,
	"nombre_usuario":           50,
	"archivo_origen":           60,
	"identificador_infraccion": 50,
}

var pagosHashKey = []string{
	"nro_acuerdo", "nro_comparendo", "documento", "nombre_usuario",
	"valor", "consecutivo_cuota", "fecha_pago",
}

var pagosDates = []string{"fecha_pago"}

var pagosRequired = []string{"documento", "nombre_usuario", "valor", "fecha_pago"}

var pagosColumns = []string{
	"id_registro", "nro_acuerdo", "nro_comparendo", "documento",
	"nombre_usuario", "valor", "fecha_pago", "archivo_origen",
	"identificador_infraccion", "fecha_carga",
}

var pagosAcuerdoStrategy = NewStrategy(Strategy{
	Kind:  KindPagosAcuerdo,
	Table: "pagos",
	Label: "AP",
	Mapping: []ColumnMapping{
		{"nro_acuerdo", "nro_acuerdo"},
		{"id_usuario", "documento"},
		{"nombres", "nombres"},
		{"apellidos", "apellidos"},
		{"valor", "valor"},
		{"fecha_liquida", "fecha_pago"},
		{"consecutivo_cuota", "consecutivo_cuota"},
	},
	RequiredSource: []string{"nro_acuerdo", "id_usuario", "nombres", "apellidos", "valor", "fecha_liquida", "consecutivo_cuota"},
	LenientSheets:  true,
	Derived:        []string{"nombre_usuario", "nro_comparendo", "identificador_infraccion"},
	Fill:           fillPagoAcuerdo,
	Warnings:       pagosWarnings,
	Caps:           pagosCaps,
	DateTimes:      pagosDates,
	HashKey:        pagosHashKey,
	Required:       pagosRequired,
	Check:          checkPago,
	Columns:        pagosColumns,
})

var pagosComparendoStrategy = NewStrategy(Strategy{
	Kind:  KindPagosComparendo,
	Table: "pagos",
	Label: "Comparendos",
	Mapping: []ColumnMapping{
		{"nro_comparendo", "nro_comparendo"},
		{"nro_recibo", "nro_recibo"},
		{"fecha_liquida_contrav", "fecha_pago"},
		{"compute_0004", "compute_0004"},
		{"id_usuario", "documento"},
		{"nombres", "nombres"},
		{"apellidos", "apellidos"},
		{"nro_resolucion", "nro_resolucion"},
		{"intereses", "intereses"},
	},
	RequiredSource: []string{
		"nro_comparendo", "nro_recibo", "fecha_liquida_contrav", "compute_0004",
		"id_usuario", "nombres", "apellidos", "nro_resolucion", "intereses",
	},
	LenientSheets: true,
	Derived:       []string{"nombre_usuario", "valor", "nro_acuerdo", "consecutivo_cuota", "identificador_infraccion"},
	Fill:          fillPagoComparendo,
	Warnings:      pagosComparendoWarnings,
	Caps:          pagosCaps,
	DateTimes:     pagosDates,
	HashKey:       pagosHashKey,
	Required:      pagosRequired,
	Check:         checkPago,
	Columns:       pagosColumns,
})

func fillPagoAcuerdo(r Row, _ ColumnSet) {
	setIdentifier(r, "nro_acuerdo")
	setIdentifier(r, "documento")
	setIdentifier(r, "consecutivo_cuota")
	fillNombreUsuario(r)
	if raw, ok := r["valor"].(string); ok {
		if d, ok := ParseNumber(raw); ok {
			r["valor"] = d
		} else {
			r["valor"] = nil
		}
	}
	r["nro_comparendo"] = ""
	r["identificador_infraccion"] = r["nro_acuerdo"]
}

func fillPagoComparendo(r Row, present ColumnSet) {
	setIdentifier(r, "nro_comparendo")
	setIdentifier(r, "nro_resolucion")
	setIdentifier(r, "documento")
	if !r.Present("nro_comparendo") {
		if r.Present("nro_resolucion") {
			r["nro_comparendo"] = r["nro_resolucion"]
		} else {
			r["nro_comparendo"] = ""
		}
	}
	fillNombreUsuario(r)

	// valor = compute_0004 + intereses; a non-numeric part counts as 0, a missing column
	// counts as 0 too (with a warning), both columns missing leaves valor empty.
	if present.Has("compute_0004") || present.Has("intereses") {
		total := decimal.Zero
		for _, part := range []string{"compute_0004", "intereses"} {
			raw, _ := r[part].(string)
			if d, ok := ParseNumber(raw); ok {
				total = total.Add(d)
			}
		}
		r["valor"] = total
	} else {
		r["valor"] = nil
	}

	r["nro_acuerdo"] = ""
	r["consecutivo_cuota"] = ""
	r["identificador_infraccion"] = r["nro_comparendo"]
}

func fillNombreUsuario(r Row) {
	nombre := strings.TrimSpace(r.Text("nombres") + " " + r.Text("apellidos"))
	if nombre == "" {
		r["nombre_usuario"] = nil
	} else {
		r["nombre_usuario"] = nombre
	}
}

func checkPago(r Row) []string {
	if v, ok := r.Decimal("valor"); ok && !v.IsPositive() {
		return []string{"valor debe ser mayor que cero"}
	}
	return nil
}

func pagosWarnings(present ColumnSet) []string {
	var warnings []string
	if !present.Has("nombres", "apellidos") {
		warnings = append(warnings, "Advertencia: No se encontraron columnas de nombres/apellidos")
	}
	if !present.Has("documento") {
		warnings = append(warnings, "Advertencia: No se encontró columna id_usuario (documento)")
	}
	return warnings
}

func pagosComparendoWarnings(present ColumnSet) []string {
	warnings := pagosWarnings(present)
	if !present.Has("nro_comparendo") && !present.Has("nro_resolucion") {
		warnings = append(warnings, "Advertencia: No se encontró columna nro_comparendo o nro_resolucion")
	}
	switch {
	case !present.Has("compute_0004") && !present.Has("intereses"):
		warnings = append(warnings, "Advertencia: No se encontraron columnas para calcular valor (compute_0004, intereses)")
	case !present.Has("compute_0004"):
		warnings = append(warnings, "Advertencia: Falta columna compute_0004, se toma como 0 en el cálculo de valor")
	case !present.Has("intereses"):
		warnings = append(warnings, "Advertencia: Falta columna intereses, se toma como 0 en el cálculo de valor")
	}
	return warnings
}
