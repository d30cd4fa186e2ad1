// Package ecs provides ECS adapters for canopy's engine events.
//
// The primary adapter is [NewDonburiSink], which forwards every engine event
// (scene lifecycle, state updates, node errors) into a [Donburi] world as a
// typed [EngineEvent]. Subscribe to [EngineEventType] in your ECS systems to
// receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	engine.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
