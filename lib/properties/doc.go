// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package properties exchanges transport properties with contacts.
//
// Each transport (identified by a transport id such as "bt" or "tor")
// has a set of string properties. Our own properties live in a local
// group and are mirrored into one group per contact, where the contact
// receives them; the contact's properties arrive in the same group.
// Every update carries a version, and only the highest version per
// transport is kept.
//
// A message body is a list:
//
//	[transportId string, version int, properties {string: string}]
//
// and its stored metadata is:
//
//	{"local": bool, "transportId": string, "version": int}
package properties
