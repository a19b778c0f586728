package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ActivityType string

const (
	ActivityTypeRideshare ActivityType = "rideshare"
	ActivityTypeDelivery  ActivityType = "delivery"
)

// ActivityRecord is one trip or delivery event synced from the income-data
// provider. The table is written by the upstream ingestion job; this service
// only reads it.
//
// income_total_charge is stored but not authoritative: it is always recomputed
// as income_fees + income_total after fetch.
type ActivityRecord struct {
	ID                            string          `gorm:"primaryKey;size:64" json:"id"`
	Account                       string          `gorm:"index;size:64" json:"account"`
	Employer                      string          `gorm:"size:255" json:"employer"`
	User                          string          `gorm:"index;size:64" json:"user"`
	CreatedAt                     time.Time       `json:"created_at"`
	UpdatedAt                     time.Time       `json:"updated_at"`
	Status                        string          `gorm:"size:64" json:"status"`
	Type                          ActivityType    `gorm:"index;size:32" json:"type"`
	AllDatetimesRequestAt         *time.Time      `json:"all_datetimes_request_at"`
	StartDatetime                 time.Time       `gorm:"index" json:"start_datetime"`
	EndDatetime                   *time.Time      `json:"end_datetime"`
	Duration                      float64         `json:"duration"`
	Timezone                      string          `gorm:"size:64" json:"timezone"`
	EarningType                   string          `gorm:"size:64" json:"earning_type"`
	StartLocationLat              *float64        `json:"start_location_lat"`
	StartLocationLng              *float64        `json:"start_location_lng"`
	StartLocationFormattedAddress string          `gorm:"type:text" json:"start_location_formatted_address"`
	EndLocationLat                *float64        `json:"end_location_lat"`
	EndLocationLng                *float64        `json:"end_location_lng"`
	EndLocationFormattedAddress   string          `gorm:"type:text" json:"end_location_formatted_address"`
	Distance                      *float64        `json:"distance"`
	DistanceUnit                  string          `gorm:"size:16" json:"distance_unit"`
	Metadata                      string          `gorm:"type:text" json:"metadata"`
	CircumstancesIsPool           *bool           `json:"circumstances_is_pool"`
	CircumstancesIsSurge          *bool           `json:"circumstances_is_surge"`
	CircumstancesServiceType      string          `gorm:"size:64" json:"circumstances_service_type"`
	CircumstancesPosition         string          `gorm:"size:64" json:"circumstances_position"`
	TaskCount                     *int            `json:"task_count"`
	MetadataOriginId              string          `gorm:"size:128" json:"metadata_origin_id"`
	IncomeCurrency                string          `gorm:"size:8" json:"income_currency"`
	IncomeTotalCharge             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"income_total_charge"`
	IncomeFees                    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"income_fees"`
	IncomeTotal                   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"income_total"`
	IncomePay                     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"income_pay"`
	IncomeTips                    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"income_tips"`
	IncomeBonus                   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"income_bonus"`
	IncomeOther                   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"income_other"`
}

func (ActivityRecord) TableName() string {
	return "argyle_driver_activities"
}
