package paths

// Topic segments of the truckwatch broker contract. Every topic has the form
// {root}/{segment}/{id}.

// Upstream: driver apps -> hub
const (
	// Broadcast carries start/stop commands for an owner's broadcast.
	// Payload: { "action": "start", "truckId": "...", "mode": "mobile" } or { "action": "stop" }
	// Pattern: {root}/broadcast/{ownerID}
	Broadcast = "broadcast"
)

// Downstream: hub -> consumer apps
const (
	// TruckStatus is published retained on every status transition.
	// Pattern: {root}/truck/status/{truckID}
	TruckStatus = "truck/status"

	// Notify delivers favorite-truck notifications to one user.
	// Pattern: {root}/notify/{userID}
	Notify = "notify"
)
