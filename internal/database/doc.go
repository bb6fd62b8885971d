// Package database stores admission results in a relational database.
//
// The schema is a fixed contract shared with downstream consumers: the
// AdmissionType method catalog, the SchoolDepartment catalog, one
// AdmissionList row per (year, method, school-department) and one
// AdmissionPerson row per (list, ticket). Every save is a lookup followed by
// an update or insert, so scraping the same year again updates rows in place.
//
// Two drivers are supported: a local SQLite file through modernc.org/sqlite
// and a remote libSQL database through libsql-client-go.
package database
