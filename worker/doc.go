/*
Package worker runs a service worker loop with observability and back-off
for no work found.
*/
package worker
