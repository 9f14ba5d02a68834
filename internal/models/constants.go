package models

// Роли участников заказа и администратора.
const (
	RoleSeller = "seller"
	RoleClient = "client"
	RoleAdmin  = "admin"
)

// Категории причин для жалоб и запросов на возврат.
const (
	ReasonNotDelivered   = "not_delivered"
	ReasonQuality        = "quality"
	ReasonMissedDeadline = "missed_deadline"
	ReasonTermsViolation = "terms_violation"
	ReasonFraud          = "fraud"
	ReasonInappropriate  = "inappropriate"
	ReasonOther          = "other"
)

// ValidReasonCategories список допустимых категорий причин.
var ValidReasonCategories = map[string]struct{}{
	ReasonNotDelivered:   {},
	ReasonQuality:        {},
	ReasonMissedDeadline: {},
	ReasonTermsViolation: {},
	ReasonFraud:          {},
	ReasonInappropriate:  {},
	ReasonOther:          {},
}
