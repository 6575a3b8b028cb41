// Package component provides the contract and registry for stream-processing
// components.
//
// # Overview
//
// A component is a self-describing unit with named input and output ports, a
// configuration schema, and a two-step lifecycle: it is created by a factory
// (StateCreated), initialized once (StateInitialized), and then its Process
// method is invoked serially by the host with one stream buffer handle per port.
//
// # Component Registration Pattern
//
// Registration is EXPLICIT rather than init() self-registration:
//
//  1. Each component package exports a Register(*Registry) error function
//  2. componentregistry.Register() orchestrates all registrations
//  3. the host explicitly calls it with a created Registry
//  4. components are then available to CreateComponent
//
// # Configuration
//
// Factories receive raw JSON. Before a factory runs, CreateComponent validates
// the configuration against the registered ConfigSchema, converted to JSON
// Schema and evaluated with gojsonschema. Parameters marked Runtime may later
// be changed through RuntimeConfigurable.
//
// # Type Negotiation
//
// Ports advertise the element types they accept. The host resolves the element
// type of every input and asks CalculateOutputTypes for the outputs, then
// creates one typed stream per link with buffer.NewHandle.
package component
