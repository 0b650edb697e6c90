// Package timestamps loads the realignment table and groups its rows into
// output clips.
//
// The table is a CSV file whose header names the columns; column order does
// not matter and unknown columns are ignored. Each row describes one segment
// of an original clip. Rows sharing (split, dialogue id, utterance id) form a
// Group that produces exactly one output clip. Groups come back sorted by
// split, then dialogue id, then utterance id. Rows inside a group keep their
// table order, which is the splice order.
package timestamps
