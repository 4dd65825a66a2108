package models

const (
	BookingStatusScheduled = "scheduled"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"
	BookingStatusPaid      = "paid"
)

const (
	BookingPaymentPending   = "pending"
	BookingPaymentCompleted = "completed"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

const (
	PlatformApp = "app"
	PlatformWeb = "web"
)

const (
	SubServiceScrap    = "scrap"
	SubServiceCleaning = "cleaning"
	SubServiceVehicle  = "vehicle"
	SubServiceLaundry  = "laundry"
)

const (
	// CurrencyINR валюта оценок и платежей
	CurrencyINR = "INR"

	// DefaultAdmissionCooldown окно антиспама для заявок, в секундах
	DefaultAdmissionCooldown = 10

	// DefaultEligibilityCacheTTL время жизни кэша зон, в секундах
	DefaultEligibilityCacheTTL = 10 * 60

	// DefaultServicesCacheTTL время жизни кэша списка услуг, в секундах
	DefaultServicesCacheTTL = 5 * 60

	// DefaultVerifyLockTTL блокировка на время проверки платежа, в секундах
	DefaultVerifyLockTTL = 30

	// DefaultOrderAmount фиксированная сумма заказа в рупиях
	DefaultOrderAmount = 199

	// ReconcileQueueSize размер очереди воркера сверки
	ReconcileQueueSize = 256
)

const (
	AdvisoryLaunchingSoon = "BlinkLean services are launching soon in your area."
	AdvisoryAvailable     = "BlinkLean services are available in your area."
	ValuationAdvisory     = "Estimated value is based on current market rates. Final value will be confirmed at pickup."
)
