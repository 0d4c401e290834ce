/*
Package courgette decodes and analyzes Courgette ensemble patches, the
binary diff format used to ship executable updates.

The package is read-only: it validates the patch structure, replays the
copy/extra/seek instructions of each correction block and reports
statistics. It does not apply patches.

# Integers

All integers are little-endian base-128 varuints of at most 5 bytes.
Signed values are zig-zag encoded: stored = value<<1 for value >= 0 and
(^value)<<1 | 1 otherwise.

# Patch

	Patch layout:
	+---------------+------------------+-----------------+-----------------+-----------------------------+---------------+
	| magic "Cou\0" | version 20110216 | source checksum | target checksum | final input size prediction | stream bundle |
	+---------------+------------------+-----------------+-----------------+-----------------------------+---------------+

	Patch streams, in bundle order:
	transformation descriptions, parameter correction,
	transformed elements correction, ensemble correction

	Transformation descriptions:
	+---------+--------+-----+--------+----------------+----------------+-----+
	| count n | kind 1 | ... | kind n | base offset 1  | base length 1  | ... |
	+---------+--------+-----+--------+----------------+----------------+-----+

# Stream bundle

	+----------------------+---------+--------+-----+--------+----------+-----+----------+
	| version 20090218     | count n | size 1 | ... | size n | stream 1 | ... | stream n |
	+----------------------+---------+--------+-----+--------+----------+-----+----------+

# Correction block

	+--------------------+------+--------+------+----------------------------------------------------------------+
	| "GBSDIF42" (8 raw) | slen | scrc32 | dlen | stream bundle: copy counts, extra counts, seeks (signed),        |
	|                    |      |        |      | diff skips, diff bytes, extra bytes                              |
	+--------------------+------+--------+------+----------------------------------------------------------------+

Each instruction reads one copy count, one extra count and one seek. Copied
source bytes are corrected by a diff byte after every run of diff-skip
unchanged bytes; extra bytes are inserted verbatim; the seek moves the
source position before the next instruction.
*/
package courgette
