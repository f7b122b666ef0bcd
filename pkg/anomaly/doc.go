// Package anomaly maintains rolling statistics over recent exchanges
// and raises predictive alerts when short-horizon linear trends project
// a future threshold breach.
//
// The rolling window is an arena of fixed-size time buckets, so memory
// is bounded regardless of request volume, and eviction is monotonic in
// time. Alerts are advisory side-channel signals; they never affect the
// evaluation of the exchanges that produced them.
package anomaly
