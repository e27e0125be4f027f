package enums

type PointsKind string

const (
	PointsReportCreated        PointsKind = "report_created"
	PointsConfirmationGiven    PointsKind = "confirmation_given"
	PointsConfirmationReceived PointsKind = "confirmation_received"
	PointsPhotoAdded           PointsKind = "photo_added"
)
