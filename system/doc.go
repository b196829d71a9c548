/*
Package system manages the startup, running, metrics and shutdown of the
background parts of a service, such as health checks, gauge reporting and
connection cleanup.

Loaders (such as conn.Load) register their health checks, metric producers
and cleanups on a System. The owning application calls Run to start the
background loops and Cleanup on the way out.
*/
package system
