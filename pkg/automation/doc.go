// Package automation builds Design Automation jobs on top of package aps.
//
// Parameters are described by a closed set of types implementing
// Parameter. Each knows how to bind itself into a work item argument for a
// given auth mode; WorkItem assembles those arguments, submits the job and
// waits for it with a Poller. Activity and AppBundle publish the
// definitions a work item runs against.
package automation
