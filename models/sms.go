package models

import "time"

// Sms is one SMS send attempt.
type Sms struct {
	IdRegistro              string    `gorm:"size:64;primaryKey" json:"id_registro"`
	TipoDocumento           *string   `gorm:"size:50" json:"tipo_documento"`
	Documento               *string   `gorm:"size:30;index" json:"documento"`
	NombreUsuario           *string   `gorm:"size:100" json:"nombre_usuario"`
	FechaSms                time.Time `gorm:"type:date;not null" json:"fecha_sms"`
	Resultado               *string   `gorm:"size:100" json:"resultado"`
	TextoSms                *string   `gorm:"size:250" json:"texto_sms"`
	Base                    *string   `gorm:"size:50" json:"base"`
	Telefono                string    `gorm:"size:20;not null" json:"telefono"`
	NumeroComparendo        *string   `gorm:"size:50" json:"numero_comparendo"`
	IdentificadorInfraccion *string   `gorm:"size:50" json:"identificador_infraccion"`
	ArchivoOrigen           *string   `gorm:"size:100" json:"archivo_origen"`
	FechaCarga              time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"fecha_carga"`
}

func (Sms) TableName() string { return "sms" }
