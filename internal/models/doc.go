// Package models defines the core domain models for Littertag.
//
// # Models
//
//   - User: registered account carrying the XP counter and litter totals
//   - Photo: an uploaded image owned by a user, placed in a city/state/country
//   - Tag: a category tag ("smoking.butts" with a quantity) on a photo
//   - CustomTag: a free-text label on a photo
//   - Location: country, state or city with aggregate counters
//   - Team: a group of users whose photos count towards shared totals
//
// # Design Principles
//
//  1. **IDs, not pointers**: relationships use ID strings (UUID format)
//  2. **Counters live on the aggregate**: totals are denormalized onto the row
//     they describe and maintained by event listeners
//  3. **Unix timestamps**: CreatedAt/UpdatedAt are seconds since the epoch
package models
