package models

import "time"

// Setting представляет одну запись таблицы настроек магазина.
type Setting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StoreSettings хранит типизированный снимок настроек магазина.
type StoreSettings struct {
	SiteName                string  `json:"site_name"`
	SiteEmail               string  `json:"site_email"`
	SitePhone               string  `json:"site_phone"`
	GSTPercentage           float64 `json:"gst_percentage"`
	DefaultTransportCharges float64 `json:"default_transport_charges"`
	OnlinePaymentEnabled    bool    `json:"online_payment_enabled"`
	CODEnabled              bool    `json:"cod_enabled"`
}
