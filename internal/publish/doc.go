// Package publish forwards stabilized contacts to an MQTT broker.
//
// Frames are published to <prefix>/contacts as JSON or as a compact
// protobuf wire encoded message (see EncodeFrame). Stylus samples go to
// <prefix>/stylus as JSON.
package publish
