package domain

// Modality identifies how the evidence for a verification was captured.
type Modality string

const (
	ModalityDocument       Modality = "document"
	ModalityPackagingImage Modality = "packagingImage"
	ModalityQRImage        Modality = "qrImage"
	ModalityManual         Modality = "manual"
)

func (m Modality) String() string { return string(m) }

func (m Modality) IsValid() bool {
	switch m {
	case ModalityDocument, ModalityPackagingImage, ModalityQRImage, ModalityManual:
		return true
	}
	return false
}

// IsImage reports whether the modality is satisfied by a picture (camera or upload).
func (m Modality) IsImage() bool {
	return m == ModalityDocument || m == ModalityPackagingImage || m == ModalityQRImage
}

// Outcome is the pass/fail result of a verdict.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

func (o Outcome) String() string { return string(o) }

// AuditAction is the kind of activity recorded in the activity log.
type AuditAction string

const (
	AuditActionDocVerify        AuditAction = "Doc Verify"
	AuditActionQRScan           AuditAction = "QR Scan"
	AuditActionManualEntry      AuditAction = "Manual Entry"
	AuditActionManualQuarantine AuditAction = "Manual Quarantine"
	AuditActionDatabaseSearch   AuditAction = "Database Search"
	AuditActionQuarantineAction AuditAction = "Quarantine Action"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionDocVerify, AuditActionQRScan, AuditActionManualEntry,
		AuditActionManualQuarantine, AuditActionDatabaseSearch, AuditActionQuarantineAction:
		return true
	}
	return false
}

// ActionForModality maps a capture modality to the activity it is logged as.
func ActionForModality(m Modality) AuditAction {
	switch m {
	case ModalityManual:
		return AuditActionManualEntry
	case ModalityQRImage:
		return AuditActionQRScan
	default:
		return AuditActionDocVerify
	}
}

// Audit results. Search results ("<N> Matches", "No Results") are free-form.
const (
	ResultPassed      = "Passed"
	ResultFailed      = "Failed"
	ResultQuarantined = "Quarantined"
	ResultNoResults   = "No Results"
)

// Device is the kind of client an activity came from.
type Device string

const (
	DeviceMobile Device = "Mobile App"
	DeviceWeb    Device = "Web Portal"
)

func (d Device) String() string { return string(d) }

// DeviceForViewport classifies a viewport width against the mobile breakpoint.
func DeviceForViewport(width, breakpoint int) Device {
	if width > 0 && width < breakpoint {
		return DeviceMobile
	}
	return DeviceWeb
}

// QuarantineStatus is the disposition state of a quarantined batch.
type QuarantineStatus string

const (
	QuarantineStatusPending   QuarantineStatus = "Pending"
	QuarantineStatusDestroyed QuarantineStatus = "Destroyed"
	QuarantineStatusReturned  QuarantineStatus = "Returned"
	QuarantineStatusRetest    QuarantineStatus = "Retest"
)

func (s QuarantineStatus) String() string { return string(s) }

func (s QuarantineStatus) IsValid() bool {
	switch s {
	case QuarantineStatusPending, QuarantineStatusDestroyed, QuarantineStatusReturned, QuarantineStatusRetest:
		return true
	}
	return false
}

// Quarantine reasons.
const (
	ReasonManualAction       = "Manual Action"
	ReasonVerificationFailed = "Verification Failed"
)

// NotificationType is the severity of an operator notification.
type NotificationType string

const (
	NotificationCritical NotificationType = "CRITICAL"
	NotificationWarning  NotificationType = "WARNING"
	NotificationInfo     NotificationType = "INFO"
)

func (t NotificationType) String() string { return string(t) }

// ConnectionStatus describes the health of a live collection subscription.
type ConnectionStatus string

const (
	ConnectionConnecting ConnectionStatus = "connecting"
	ConnectionLive       ConnectionStatus = "live"
	ConnectionOffline    ConnectionStatus = "offline"
)

func (s ConnectionStatus) String() string { return string(s) }

// SupplierStatus is the trust grade of a supplier.
type SupplierStatus string

const (
	SupplierTrusted SupplierStatus = "Trusted"
	SupplierSafe    SupplierStatus = "Safe"
	SupplierRisky   SupplierStatus = "Risky"
)

func (s SupplierStatus) String() string { return string(s) }

func (s SupplierStatus) IsValid() bool {
	switch s {
	case SupplierTrusted, SupplierSafe, SupplierRisky:
		return true
	}
	return false
}
