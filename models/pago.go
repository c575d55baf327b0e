package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pago is one payment, from an agreement (Ap pagados) or a fine (Comparendos pagados) extract.
type Pago struct {
	IdRegistro              string          `gorm:"size:64;primaryKey" json:"id_registro"`
	NroAcuerdo              *string         `gorm:"size:20" json:"nro_acuerdo"`
	NroComparendo           *string         `gorm:"size:50" json:"nro_comparendo"`
	Documento               string          `gorm:"size:20;not null;index" json:"documento"`
	NombreUsuario           string          `gorm:"size:50;not null" json:"nombre_usuario"`
	Valor                   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"valor"`
	FechaPago               time.Time       `gorm:"not null" json:"fecha_pago"`
	ArchivoOrigen           string          `gorm:"size:60;not null" json:"archivo_origen"`
	IdentificadorInfraccion *string         `gorm:"size:50" json:"identificador_infraccion"`
	FechaCarga              time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"fecha_carga"`
}

func (Pago) TableName() string { return "pagos" }
