// Package user provides household member persistence for Parcel Core.
//
// Users carry a role and an optional phone number. Admin users with a
// phone number on record are one of the two sources of security alert
// recipients (the other is the recipients file, see the notify package).
package user
