// Package schedule runs periodic daemon work on cron schedules.
//
// Schedules use the standard five-field cron syntax:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "*/15 * * * *" - Every 15 minutes
//   - "0 0 * * 0"    - Weekly on Sunday at midnight
//
// Extension keeps two jobs in step with the committed configuration: a
// periodic reload and journal pruning. Changing either schedule in the
// configuration file and reloading replaces the job in place.
package schedule
