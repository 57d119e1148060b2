// Package models defines the persisted domain records for SettleUp.
//
// Records reference each other by ID strings, never by pointer, so the storage
// layer can hand the balance engine flat row lists without walking an object
// graph.
//
// All money is decimal with two fractional digits in the reporting currency.
// Conversion from the currency an expense was entered in happens before a
// record is created.
package models
