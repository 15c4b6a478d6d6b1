package server

import "github.com/truckwatch-io/truckwatch/pkg/options"

type Config struct {
	HttpOptions  *options.HttpOptions
	GrpcOptions  *options.GrpcOptions
	MqttOptions  *options.MqttOptions
	FleetOptions *options.FleetOptions
}
