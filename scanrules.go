// Package scanrules implements the rule-evaluation primitives a
// vulnerability-management platform pushes down into its data store.
//
// The primitives answer, per call and without retaining any state:
//
//   - whether a host is inside a host-list expression ([hostlist.Contains])
//   - how many distinct hosts a host-list expression denotes once an
//     exclusion list is subtracted, bounded by a cap ([hostlist.Count])
//   - the next occurrence of a recurring scan schedule
//     ([icalendar.Schedule.NextTime])
//   - whether a severity matches a threshold with an "any severity"
//     override convention ([SeverityMatchesOverride])
//
// Every operation is a pure function of its arguments. The sqlfunc package
// exposes the same operations as SQL scalar functions so they can run inside
// query evaluation, mirroring how the platform's data store calls them.
package scanrules
