// Package finance holds the pure calculations behind reports, budget
// progress and goal projections. Nothing in here performs I/O: callers load
// a snapshot of transactions, budgets and goals and pass it in.
//
// All money values are shopspring decimals carrying at most two fractional
// digits. Percentages are rounded to two decimal places, and any ratio whose
// denominator is zero or negative is defined as zero.
package finance
