package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gestion is one logged contact attempt (table gestiones).
type Gestion struct {
	IdRegistro              string          `gorm:"size:64;primaryKey" json:"id_registro"`
	IdGestionCampana        *string         `gorm:"column:id_gestion_campaña;size:50" json:"id_gestion_campaña"`
	TipoDocumento           *string         `gorm:"size:50" json:"tipo_documento"`
	Documento               string          `gorm:"size:30;not null;index" json:"documento"`
	NombreUsuario           *string         `gorm:"size:100" json:"nombre_usuario"`
	FechaGestion            time.Time       `gorm:"not null;index" json:"fecha_gestion"`
	TipoLlamada             *string         `gorm:"size:50" json:"tipo_llamada"`
	IdGestion               string          `gorm:"size:50;not null" json:"id_gestion"`
	Resultado               string          `gorm:"size:100;not null" json:"resultado"`
	FechaCompromiso         *time.Time      `gorm:"type:date" json:"fecha_compromiso"`
	Asesor                  *string         `gorm:"size:100" json:"asesor"`
	Campana                 string          `gorm:"size:50;not null" json:"campana"`
	Telefono                *string         `gorm:"size:20" json:"telefono"`
	Obligacion              *string         `gorm:"size:50" json:"obligacion"`
	NumeroComparendo        *string         `gorm:"size:50" json:"numero_comparendo"`
	Valor                   decimal.Decimal `gorm:"type:decimal(12,2)" json:"valor"`
	IdentificadorInfraccion *string         `gorm:"size:50;index" json:"identificador_infraccion"`
	ArchivoOrigen           *string         `gorm:"size:100" json:"archivo_origen"`
	FechaCarga              time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"fecha_carga"`
	FechaGestionSencilla    *string         `gorm:"size:10" json:"fecha_gestion_sencilla"`
}

func (Gestion) TableName() string { return "gestiones" }
