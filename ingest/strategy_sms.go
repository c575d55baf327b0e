package ingest

import (
	"regexp"

	"bitbucket.org/mmdatafocus/collections_backend/utils"
)

var smsPhonePattern = regexp.MustCompile(`^\d{7,15}$`)

var smsStrategy = NewStrategy(Strategy{
	Kind:  KindSMS,
	Table: "sms",
	Label: "SMS",
	Mapping: []ColumnMapping{
		{"TIPO DOCUMENTO", "tipo_documento"},
		{"DOCUMENTO", "documento"},
		{"NOMBRE", "nombre_usuario"},
		{"FECHA", "fecha_sms"},
		{"RESULTADO", "resultado"},
		{"SMS", "texto_sms"},
		{"BASE", "base"},
		{"TELEFONO", "telefono"},
		{"NRO_COMPARENDO", "numero_comparendo"},
	},
	RequiredSource: []string{
		"TIPO DOCUMENTO", "DOCUMENTO", "NOMBRE", "FECHA", "RESULTADO",
		"SMS", "BASE", "TELEFONO", "NRO_COMPARENDO",
	},
	Derived: []string{"identificador_infraccion"},
	Fill:    fillSMS,
	Caps: map[string]int{
		"tipo_documento":           50,
		"documento":                30,
		"nombre_usuario":           100,
		"resultado":                100,
		"texto_sms":                250,
		"base":                     50,
		"telefono":                 20,
		"numero_comparendo":        50,
		"identificador_infraccion": 50,
		"archivo_origen":           100,
	},
	DateOnly: []string{"fecha_sms"},
	HashKey:  []string{"documento", "telefono", "fecha_sms", "identificador_infraccion", "base"},
	Required: []string{"documento", "telefono", "fecha_sms"},
	Check:    checkSMS,
	Columns: []string{
		"id_registro", "tipo_documento", "documento", "nombre_usuario",
		"fecha_sms", "resultado", "texto_sms", "base", "telefono",
		"numero_comparendo", "identificador_infraccion", "archivo_origen", "fecha_carga",
	},
})

func fillSMS(r Row, _ ColumnSet) {
	if s, ok := r["telefono"].(string); ok {
		r["telefono"] = utils.NormalizePhone(s)
	}
	setIdentifier(r, "numero_comparendo")
	setIdentifier(r, "documento")
	// documento, then telefono, then numero_comparendo
	r["documento"] = firstPresent(r, "documento", "telefono", "numero_comparendo")

	if r.Present("numero_comparendo") {
		r["identificador_infraccion"] = r["numero_comparendo"]
	} else {
		r["identificador_infraccion"] = ""
	}
}

func checkSMS(r Row) []string {
	if !smsPhonePattern.MatchString(r.Text("telefono")) {
		return []string{"telefono formato invalido"}
	}
	return nil
}
