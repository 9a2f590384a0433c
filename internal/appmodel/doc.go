// Package appmodel turns smart DAQ applications into the modules that
// implement them.
//
// A Factory maps an application class name to a Generator. GenerateModules
// looks the generator up by the class of the application, runs it against a
// configuration database and resolves the (class, id) locators it returns
// into typed dal objects, preserving their order.
//
// Generators create the module and connection objects they need in the
// database they are given. Callers that generate several applications from
// the same database should hand each generator its own confdb.Clone, since
// different applications may create objects with the same id.
package appmodel
