package models

// Status indicator values form a closed set. 2 is the "not started" sentinel
// assigned when a record is created.
const (
	StatusIndicatorDone       = 1
	StatusIndicatorNotStarted = 2
	StatusIndicatorInProgress = 3
	StatusIndicatorBlocked    = 4
)

// Import shipment indicator names accepted by the dedicated status endpoints.
const (
	IndicatorClearance         = "clearance"
	IndicatorDeliveryBooked    = "deliveryBooked"
	IndicatorHaulierBooking    = "haulierBooking"
	IndicatorContainerRelease  = "containerRelease"
	IndicatorInvoiceCustomer   = "invoiceCustomer"
	IndicatorSendPodToCustomer = "sendPodToCustomer"
)

// Custom clearance indicator names.
const (
	IndicatorAdviseAgent             = "adviseAgent"
	IndicatorSendHaulierEad          = "sendHaulierEad"
	IndicatorSendHaulierClearanceDoc = "sendHaulierClearanceDoc"
	IndicatorSendEntryToCustomer     = "sendEntryToCustomer"
	IndicatorSendClearedEntry        = "sendClearedEntry"
)

// importIndicators lists the indicators an import shipment carries.
var importIndicators = map[string]bool{
	IndicatorClearance:         false,
	IndicatorDeliveryBooked:    false,
	IndicatorHaulierBooking:    false,
	IndicatorContainerRelease:  false,
	IndicatorInvoiceCustomer:   false,
	IndicatorSendPodToCustomer: false,
}

// clearanceIndicators maps clearance indicator names to whether the indicator
// is optional (value set {2,3} or null instead of {1,2,3,4}).
var clearanceIndicators = map[string]bool{
	IndicatorAdviseAgent:             false,
	IndicatorSendHaulierEad:          true,
	IndicatorSendHaulierClearanceDoc: true,
	IndicatorSendEntryToCustomer:     false,
	IndicatorInvoiceCustomer:         false,
	IndicatorSendClearedEntry:        false,
}

// exportIndicators lists the indicators an export shipment carries.
var exportIndicators = map[string]bool{
	IndicatorHaulierBooking:    false,
	IndicatorInvoiceCustomer:   false,
	IndicatorSendPodToCustomer: false,
}

// KnownImportIndicator reports whether name is a valid import shipment indicator.
func KnownImportIndicator(name string) bool {
	_, ok := importIndicators[name]
	return ok
}

// KnownExportIndicator reports whether name is a valid export shipment indicator.
func KnownExportIndicator(name string) bool {
	_, ok := exportIndicators[name]
	return ok
}

// KnownClearanceIndicator reports whether name is a valid clearance indicator,
// and whether it is one of the optional indicators.
func KnownClearanceIndicator(name string) (known, optional bool) {
	optional, known = clearanceIndicators[name]
	return known, optional
}

// ValidStatusValue checks a proposed indicator value against the closed set.
// Optional indicators accept null plus {2,3}; all others require {1,2,3,4}.
func ValidStatusValue(value *int, optional bool) bool {
	if optional {
		if value == nil {
			return true
		}
		return *value == StatusIndicatorNotStarted || *value == StatusIndicatorInProgress
	}
	if value == nil {
		return false
	}
	return *value >= StatusIndicatorDone && *value <= StatusIndicatorBlocked
}
