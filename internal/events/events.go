// Package events is the in-process event registry: named domain events,
// each bound to an ordered list of listeners that run synchronously on the
// caller's transaction.
package events

import "github.com/mmynk/littertag/internal/models"

// Name identifies a domain event.
type Name string

const (
	NameImageUploaded       Name = "ImageUploaded"
	NameImageDeleted        Name = "ImageDeleted"
	NameTagsVerifiedByAdmin Name = "TagsVerifiedByAdmin"
	NamePhotoVerifiedByUser Name = "PhotoVerifiedByUser"
	NameUserRegistered      Name = "UserRegistered"
	NameIncrementPhotoMonth Name = "IncrementPhotoMonth"
)

// Event is a domain event passed to listeners.
type Event interface {
	EventName() Name
}

// ImageUploaded fires after a photo row is inserted.
type ImageUploaded struct {
	Photo models.Photo `json:"photo"`
}

func (ImageUploaded) EventName() Name { return NameImageUploaded }

// ImageDeleted fires before a photo row is removed. Photo holds the row as
// it was, including its verification stage and litter total.
type ImageDeleted struct {
	Photo models.Photo `json:"photo"`
}

func (ImageDeleted) EventName() Name { return NameImageDeleted }

// TagsVerifiedByAdmin fires when a photo's tags are accepted, either by an
// admin or automatically for a trusted user. Photo.Tags is populated.
type TagsVerifiedByAdmin struct {
	Photo      models.Photo `json:"photo"`
	VerifiedBy string       `json:"verified_by"`
}

func (TagsVerifiedByAdmin) EventName() Name { return NameTagsVerifiedByAdmin }

// PhotoVerifiedByUser is the stage-1 verification event. It is registered
// but has no listeners.
type PhotoVerifiedByUser struct {
	Photo models.Photo `json:"photo"`
}

func (PhotoVerifiedByUser) EventName() Name { return NamePhotoVerifiedByUser }

// UserRegistered fires after a new account is created.
type UserRegistered struct {
	User models.User `json:"user"`
}

func (UserRegistered) EventName() Name { return NameUserRegistered }

// IncrementPhotoMonth fires after an upload to count it in the monthly
// series of each of the photo's locations.
type IncrementPhotoMonth struct {
	Photo models.Photo `json:"photo"`
}

func (IncrementPhotoMonth) EventName() Name { return NameIncrementPhotoMonth }
