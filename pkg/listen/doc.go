// Package listen keeps TCP listeners and UDP sockets in step with a
// reloadable configuration.
//
// Set (TCP) and UDPSet are lifecycle extensions. Endpoints are compared by
// their configured address: an address present before and after a reload
// keeps its socket and connections, a new address is bound before the
// reload is accepted, and a removed address stops accepting once the
// reload commits. Each endpoint can cap concurrent connections (or UDP
// datagrams in flight) with max_conn and pause after accept or read errors
// with error_sleep.
package listen
