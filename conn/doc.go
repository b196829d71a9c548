/*
Package conn maintains a shared, lazily established MongoDB client.

The first caller that needs the database triggers the connection; every
concurrent caller attaches to that same attempt rather than dialing a
duplicate. Once connected, the client is memoized for the life of the
process. A failed attempt leaves the manager clean, so the next caller
retries from scratch and receives the driver's error untouched.

There are tools for:
- loading the connection into a system (cleanup, health checks, pool gauges)
- configuration from the environment
*/
package conn
