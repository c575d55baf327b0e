package ingest

import (
	"strings"

	"bitbucket.org/mmdatafocus/collections_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	sinRegistro = "sin registro"
	sinCampana  = "SIN CAMPAÑA"
	saliente    = "Saliente"
)

var gestionesStrategy = NewStrategy(Strategy{
	Kind:  KindGestiones,
	Table: "gestiones",
	Label: "gestiones",
	Mapping: []ColumnMapping{
		{"Id Gestion Campaña", "id_gestion_campaña"},
		{"Tipo documento", "tipo_documento"},
		{"Número documento", "documento"},
		{"Nombre", "nombre_usuario"},
		{"Fecha gestión", "fecha_gestion"},
		{"Tipo llamada", "tipo_llamada"},
		{"Código gestión", "id_gestion"},
		{"Resultado", "resultado"},
		{"Fecha Compromiso", "fecha_compromiso"},
		{"Funcionario", "asesor"},
		{"Campaña", "campana"},
		{"Teléfono", "telefono"},
		{"Obligación", "obligacion"},
		{"Nro. Comparendo", "numero_comparendo"},
		{"Valor", "valor"},
	},
	RequiredSource: []string{
		"Id Gestion Campaña", "Tipo documento", "Número documento", "Nombre",
		"Fecha gestión", "Tipo llamada", "Código gestión", "Resultado",
		"Fecha Compromiso", "Funcionario", "Campaña", "Teléfono",
		"Obligación", "Nro. Comparendo", "Valor",
	},
	Derived: []string{"identificador_infraccion", "fecha_gestion_sencilla"},
	Fill:    fillGestion,
	Caps: map[string]int{
		"id_gestion_campaña":       50,
		"tipo_documento":           50,
		"documento":                30,
		"nombre_usuario":           100,
		"tipo_llamada":             50,
		"id_gestion":               50,
		"resultado":                100,
		"asesor":                   100,
		"campana":                  50,
		"telefono":                 20,
		"obligacion":               50,
		"numero_comparendo":        50,
		"identificador_infraccion": 50,
		"archivo_origen":           100,
		"fecha_gestion_sencilla":   10,
	},
	DateTimes: []string{"fecha_gestion"},
	DateOnly:  []string{"fecha_compromiso"},
	HashKey: []string{
		"documento", "telefono", "asesor", "fecha_gestion",
		"id_gestion", "identificador_infraccion", "resultado",
	},
	Required: []string{"documento", "telefono", "asesor", "fecha_gestion", "id_gestion", "resultado", "campana"},
	Columns: []string{
		"id_registro", "id_gestion_campaña", "tipo_documento", "documento",
		"nombre_usuario", "fecha_gestion", "tipo_llamada", "id_gestion",
		"resultado", "fecha_compromiso", "asesor", "campana", "telefono",
		"obligacion", "numero_comparendo", "valor", "identificador_infraccion",
		"archivo_origen", "fecha_carga", "fecha_gestion_sencilla",
	},
})

func fillGestion(r Row, _ ColumnSet) {
	setDefault(r, "id_gestion_campaña", sinRegistro)
	setDefault(r, "tipo_documento", sinRegistro)
	setDefault(r, "nombre_usuario", sinRegistro)
	setDefault(r, "tipo_llamada", saliente)
	setDefault(r, "campana", sinCampana)

	if raw, ok := r["valor"].(string); ok {
		if d, ok := ParseNumber(raw); ok {
			r["valor"] = d
		} else {
			r["valor"] = decimal.Zero
		}
	} else if _, isDecimal := r["valor"].(decimal.Decimal); !isDecimal {
		r["valor"] = decimal.Zero
	}

	setIdentifier(r, "documento")
	setIdentifier(r, "obligacion")
	setIdentifier(r, "numero_comparendo")
	if s, ok := r["telefono"].(string); ok {
		r["telefono"] = utils.NormalizePhone(s)
	}
	if !r.Present("telefono") && r.Present("documento") {
		r["telefono"] = r.Text("documento")
	}

	setIdentifier(r, "id_gestion")
	if !r.Present("id_gestion") && r.Present("documento") && r.Present("telefono") {
		r["id_gestion"] = strings.TrimSpace(r.Text("documento")) + "_" + strings.TrimSpace(r.Text("telefono"))
	}

	r["identificador_infraccion"] = firstPresent(r, "obligacion", "numero_comparendo")

	if t, ok := r.Time("fecha_gestion"); ok {
		r["fecha_gestion_sencilla"] = t.Format("2006-01-02")
	} else {
		r["fecha_gestion_sencilla"] = nil
	}
}
