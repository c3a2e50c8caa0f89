// Package geom holds the planar and spatial pose types shared across the simulator.
//
// Units are meters, radians and seconds. Headings are counter-clockwise from the
// field +X axis. Spatial poses use mgl64 vectors and quaternions.
package geom
